//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

// expireMillis is how long the notification server keeps a message up.
const expireMillis = int32(5000)

// Notify sends a desktop notification through org.freedesktop.Notifications.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(opts.Urgency)),
	}
	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		opts.appName(), uint32(0), opts.IconPath, title, body, []string{}, hints, expireMillis)
	return call.Err
}
