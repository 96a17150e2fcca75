// Package ratelimit paces the crawler.
//
// Interval inserts a fixed pause after every download that touched the
// network. It sleeps through a Clock, so tests can swap in a FakeClock and
// check the recorded pauses without waiting.
//
// PerSecond builds the golang.org/x/time/rate limiter the VK client uses to
// space API calls.
//
//	limiter := ratelimit.NewInterval(100*time.Millisecond, nil)
//	for _, url := range urls {
//	    download(url)
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
package ratelimit
