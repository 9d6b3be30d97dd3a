package adb

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const dumpPath = "/sdcard/window_dump.xml"

// Runner executes one adb invocation and returns its combined output.
// Extracted so the controller is testable without a device.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct {
	path   string
	serial string
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	full := args
	if r.serial != "" {
		full = append([]string{"-s", r.serial}, args...)
	}
	out, err := exec.CommandContext(ctx, r.path, full...).Output()
	if err != nil {
		return nil, fmt.Errorf("adb %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Controller implements the device automation surface over the adb binary.
// Actions return as soon as adb does; settle delays belong to the caller.
// The only exception is the inter-word pause inside InputText, which is part
// of the input primitive itself.
type Controller struct {
	run Runner
	log *logrus.Logger

	// interWord is the pause between the words of one text input, needed
	// because consecutive `input text` calls can arrive out of order.
	interWord time.Duration
}

// NewController creates a controller for the given adb binary and device
// serial. An empty serial targets the only connected device.
func NewController(adbPath, serial string, log *logrus.Logger) *Controller {
	if adbPath == "" {
		adbPath = "adb"
	}
	return &Controller{
		run:       &execRunner{path: adbPath, serial: serial},
		log:       log,
		interWord: 200 * time.Millisecond,
	}
}

// NewControllerWithRunner wires a custom runner, used by tests.
func NewControllerWithRunner(run Runner, log *logrus.Logger) *Controller {
	return &Controller{run: run, log: log}
}

// DumpUITree dumps the current UI hierarchy and returns its XML text.
func (c *Controller) DumpUITree(ctx context.Context) (string, error) {
	if _, err := c.run.Run(ctx, "shell", "uiautomator", "dump", dumpPath); err != nil {
		return "", &entities.TransportError{Op: "dump ui tree", Err: err}
	}
	out, err := c.run.Run(ctx, "shell", "cat", dumpPath)
	if err != nil {
		return "", &entities.TransportError{Op: "read ui dump", Err: err}
	}
	return string(out), nil
}

// Screenshot captures the screen as PNG bytes.
func (c *Controller) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := c.run.Run(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, &entities.TransportError{Op: "screenshot", Err: err}
	}
	return out, nil
}

// Tap taps the given coordinates.
func (c *Controller) Tap(ctx context.Context, x, y int) error {
	c.log.WithFields(logrus.Fields{"x": x, "y": y}).Debug("tap")
	if _, err := c.run.Run(ctx, "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
		return &entities.TransportError{Op: "tap", Err: err}
	}
	return nil
}

// Swipe performs one swipe gesture.
func (c *Controller) Swipe(ctx context.Context, x1, y1, x2, y2 int) error {
	if _, err := c.run.Run(ctx, "shell", "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2)); err != nil {
		return &entities.TransportError{Op: "swipe", Err: err}
	}
	return nil
}

// InputText types text into the focused field. The `input text` primitive
// does not reliably transmit literal spaces, so words are sent one at a time
// with an explicit space key event between them.
func (c *Controller) InputText(ctx context.Context, text string) error {
	words := strings.Split(text, " ")
	for i, word := range words {
		if word != "" {
			if _, err := c.run.Run(ctx, "shell", "input", "text", word); err != nil {
				return &entities.TransportError{Op: "input text", Err: err}
			}
		}
		if i < len(words)-1 {
			c.pause(ctx)
			if err := c.KeyEvent(ctx, "KEYCODE_SPACE"); err != nil {
				return err
			}
			c.pause(ctx)
		}
	}
	return nil
}

// KeyEvent sends one key event.
func (c *Controller) KeyEvent(ctx context.Context, code string) error {
	if _, err := c.run.Run(ctx, "shell", "input", "keyevent", code); err != nil {
		return &entities.TransportError{Op: "key event", Err: err}
	}
	return nil
}

// StartApp launches the given activity.
func (c *Controller) StartApp(ctx context.Context, pkg, activity string) error {
	c.log.WithField("package", pkg).Debug("starting app")
	if _, err := c.run.Run(ctx, "shell", "am", "start", "-n", pkg+"/"+activity); err != nil {
		return &entities.TransportError{Op: "start app", Err: err}
	}
	return nil
}

// ForceStop force-stops the package and returns to the launcher so the next
// start is a cold one.
func (c *Controller) ForceStop(ctx context.Context, pkg string) error {
	c.log.WithField("package", pkg).Debug("force-stopping app")
	if _, err := c.run.Run(ctx, "shell", "am", "force-stop", pkg); err != nil {
		return &entities.TransportError{Op: "force stop", Err: err}
	}
	return c.KeyEvent(ctx, "KEYCODE_HOME")
}

func (c *Controller) pause(ctx context.Context) {
	if c.interWord <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.interWord):
	}
}

var _ interfaces.Device = (*Controller)(nil)
