// Package server implements the HTTP API of the PDF drop service: upload,
// listing and serving of PDF files. It wires the routes to their
// dependencies (metadata store, file storage, logger) and provides the
// lifecycle helpers used by tests and the production binary.
package server
