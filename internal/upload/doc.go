// Package upload validates, sanitises and stores files received over HTTP
// before they are handed to the ingestion task.
package upload
