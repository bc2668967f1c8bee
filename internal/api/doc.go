// Package api handles incoming HTTP requests, request validation and
// response formatting. It translates uploads, word listings and job status
// polls into calls on the task runner and the word store.
package api
