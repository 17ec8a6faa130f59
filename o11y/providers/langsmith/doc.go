// Package langsmith provides a LangSmith exporter for the kernel's
// observability system. It implements the [o11y.ExecutionExporter]
// interface and sends agent execution records to LangSmith via its HTTP
// runs API.
//
// Usage:
//
//	exporter, err := langsmith.New(
//	    langsmith.WithAPIKey("lsv2_..."),
//	    langsmith.WithProject("my-project"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = exporter.ExportExecution(ctx, data)
//
// The exporter can be used standalone or composed with other exporters
// via [o11y.MultiExporter].
//
// # Configuration Options
//
//   - [WithBaseURL] — sets the LangSmith API base URL (default: https://api.smith.langchain.com)
//   - [WithAPIKey] — sets the LangSmith API key (required)
//   - [WithProject] — sets the LangSmith project name (default: "default")
//   - [WithTimeout] — sets the HTTP client timeout (default: 10s)
package langsmith
