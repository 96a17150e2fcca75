// Package scraper crawls VK conversations and downloads their photos.
//
// A run walks two nested paged listings: the token owner's conversations,
// filtered by peer kind, and for each selected conversation its photo
// attachments. Every photo is saved once under
// <output>/<kind>s/<peerID>/<filename>; files already present are skipped
// without touching the network. A fixed delay follows every download that
// went to the network.
//
//	s, err := scraper.New(cfg, scraper.WithObserver(ui.NewConsoleReporter(os.Stdout, false)))
//	if err != nil {
//	    return err
//	}
//	stats, err := s.Run(ctx)
//
// Everything runs sequentially on the caller's goroutine. Observers receive
// progress events in order.
package scraper
