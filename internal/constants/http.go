package constants

// HeaderRequestID carries the correlation id of a request between the
// client and the server.
const HeaderRequestID = "X-Request-ID"

// Route prefixes shared by the server and the client.
const (
	RouteTask       = "/task"
	RouteTaskResult = "/task/result"
	RouteHealth     = "/healthz"
	RouteStats      = "/stats"
)
