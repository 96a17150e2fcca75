package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"vkscraper/pkg/models"
	"vkscraper/pkg/scraper"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("vkscraper").Show($toast)
	`, title, message)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier sends a desktop notification when a crawl ends
type Notifier struct {
	scraper.BaseObserver

	sender NotificationSender
	out    io.Writer
}

// NewNotifier creates a Notifier for the current platform
func NewNotifier(out io.Writer) *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return NewNotifierWithSender(sender, out)
}

// NewNotifierWithSender creates a Notifier with an explicit sender; sender may be nil
func NewNotifierWithSender(sender NotificationSender, out io.Writer) *Notifier {
	return &Notifier{sender: sender, out: out}
}

func (n *Notifier) CrawlFinished(stats models.CrawlStats, err error) {
	if err != nil {
		n.send(Red, "vkscraper failed", err.Error())
		return
	}
	n.send(Green, "vkscraper finished",
		fmt.Sprintf("%d new photos, %d already present, %d failed", stats.Downloaded, stats.Existing, stats.Failed))
}

func (n *Notifier) send(color func(string) string, title, message string) {
	if n.out != nil {
		fmt.Fprintf(n.out, "\n%s: %s\n", color(title), message)
	}

	// Notifications are best effort
	if n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}

var _ scraper.Observer = (*Notifier)(nil)
var _ scraper.Observer = (*ConsoleReporter)(nil)
