// Package platform sends desktop notifications through the host's
// notification service.
package platform

// Urgency ranks a notification. Hosts without urgency levels ignore it.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender. Empty means "papermark".
	AppName string
	// IconPath, when non-empty, points to an image file shown with the
	// notification where supported.
	IconPath string
	Urgency  Urgency
}

func (o Options) appName() string {
	if o.AppName == "" {
		return "papermark"
	}
	return o.AppName
}
