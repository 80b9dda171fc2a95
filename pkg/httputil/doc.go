// Package httputil provides the HTTP plumbing used to fetch remote
// resources: images, template artwork, font descriptors and font files.
//
// # Client
//
// [Client] wraps net/http with default headers, a response size limit,
// classification of failures into error codes, and optional caching of
// response bodies in a [cache.Cache]:
//
//	c := httputil.NewClient(
//	    httputil.WithCache(fileCache, cache.TTLResource),
//	    httputil.WithHeaders(map[string]string{"User-Agent": "postcraft"}),
//	)
//	data, err := c.GetBytes(ctx, "https://cdn.example.com/logo.png")
//
// # Retry
//
// [Retry] re-runs an operation whose error is a [RetryableError] with
// exponential backoff. The client wraps network failures and 5xx responses
// as retryable. It makes a single attempt unless [WithAttempts] says
// otherwise: a failed resource degrades the render instead of stalling it.
package httputil
