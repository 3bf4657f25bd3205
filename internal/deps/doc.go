// Package deps resolves the external binaries moltcast shells out to.
package deps
