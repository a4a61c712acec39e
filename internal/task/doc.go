// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous execution of long-running operations
// like delivering email and publishing posts, ensuring they don't block HTTP
// request handling and can recover from application restarts. Tasks are
// persisted before execution and claimed atomically, so several worker
// processes can share one database without running the same task twice.
package task
