// Package apierror defines the error taxonomy the rest of the application
// reacts to, and the classifier that maps transport-layer failures onto it.
//
// The presentation layer never sees a raw transport error: the session and
// registration services run every failure through Classify or ClassifyLogin
// and return an *Error whose Kind selects the user-facing message category.
// Already-classified errors pass through the classifier unchanged, so a
// KindTokenRefreshFailed produced deep inside the refresh coordinator keeps
// its identity at the surface.
package apierror
