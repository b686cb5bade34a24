// Package timeline implements tweets, likes, retweets, and profile
// endpoints. Every route requires bearer authentication; the handler reads
// the caller's user ID from the request context.
package timeline
