package notify

import (
	"fmt"
	"log"
	"os/exec"
	"sync/atomic"
	"time"
)

// How often the alarm sound replays until the alarm is silenced.
const alarmReplayInterval = 3 * time.Second

// Dispatcher receives the new channel name after a genuine change and
// performs the externally visible alert. The watcher calls Notify exactly
// once per change and never inspects the outcome.
type Dispatcher interface {
	Notify(name string)
}

// DesktopNotifier alerts via a desktop popup (notify-send) and a looping
// audio alarm (mpv) that keeps playing until Stop is called.
type DesktopNotifier struct {
	soundPath string
	running   atomic.Bool
}

func NewDesktopNotifier(soundPath string) *DesktopNotifier {
	return &DesktopNotifier{soundPath: soundPath}
}

// Running reports whether the alarm loop is active.
func (n *DesktopNotifier) Running() bool {
	return n.running.Load()
}

// Notify sends the popup once, then loops the alarm sound until Stop is
// called. If an alarm is already running the call is a no-op -- one alarm
// at a time is enough to get someone's attention.
func (n *DesktopNotifier) Notify(name string) {
	if !n.running.CompareAndSwap(false, true) {
		return
	}

	if err := sendNotification(name); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}

	for n.running.Load() {
		if err := n.playSound(); err != nil {
			log.Printf("Failed to play alarm sound: %v", err)
		}
		// Re-check the flag frequently so Stop takes effect quickly.
		for i := 0; i < int(alarmReplayInterval/(100*time.Millisecond)); i++ {
			if !n.running.Load() {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// NotifyOnce fires the popup and plays the sound a single time. Used by the
// CLI's test command to verify the alert chain end to end.
func (n *DesktopNotifier) NotifyOnce(name string) {
	if err := sendNotification(name); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
	if err := n.playSound(); err != nil {
		log.Printf("Failed to play alarm sound: %v", err)
	}
}

// Stop silences a running alarm loop.
func (n *DesktopNotifier) Stop() {
	n.running.Store(false)
}

func sendNotification(name string) error {
	return exec.Command("notify-send", notificationArgs(name)...).Run()
}

func (n *DesktopNotifier) playSound() error {
	return exec.Command("mpv", n.soundArgs()...).Run()
}

func notificationArgs(name string) []string {
	return []string{"-u", "critical", "CHANNEL OPEN", fmt.Sprintf("Channel is now: %s", name)}
}

func (n *DesktopNotifier) soundArgs() []string {
	return []string{"--no-video", "--really-quiet", n.soundPath}
}
