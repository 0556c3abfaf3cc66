package internal

import (
	"sjsage522/fundgrubenotifier/services/cache"
	"sjsage522/fundgrubenotifier/services/notifier"
	"sjsage522/fundgrubenotifier/services/publisher"
	"sjsage522/fundgrubenotifier/services/storage"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	// Cache is nil outside development
	Cache cache.CacheService
	// Publisher is nil when no Redis stream is configured
	Publisher publisher.Publisher
	Storage   storage.Storage
	Mailer    notifier.Mailer
}

// Close releases the storage and publisher connections
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.Storage != nil {
		d.Storage.Close()
	}
}
