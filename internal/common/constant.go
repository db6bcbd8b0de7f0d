package common

// AuthorizationHeaderName carries the admin bearer token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the JWT inside the Authorization header.
const BearerPrefix = "Bearer "

// ReportStatusResolved is the only report status that allows feedback.
const ReportStatusResolved = "Resolved"
