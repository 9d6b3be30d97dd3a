package bankapp

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bank_automation/application/screen"
	"bank_automation/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDevice plays back a fixed sequence of UI dumps, repeating the last
// one, and records every action.
type scriptedDevice struct {
	dumps   []string
	dumpIdx int
	taps    [][2]int
	swipes  [][4]int
	inputs  []string
	keys    []string
	starts  []string
	stops   []string

	startedAt  time.Time
	firstKeyAt time.Time
}

func (d *scriptedDevice) DumpUITree(ctx context.Context) (string, error) {
	dump := d.dumps[d.dumpIdx]
	if d.dumpIdx < len(d.dumps)-1 {
		d.dumpIdx++
	}
	return dump, nil
}

func (d *scriptedDevice) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }

func (d *scriptedDevice) Tap(ctx context.Context, x, y int) error {
	d.taps = append(d.taps, [2]int{x, y})
	return nil
}

func (d *scriptedDevice) Swipe(ctx context.Context, x1, y1, x2, y2 int) error {
	d.swipes = append(d.swipes, [4]int{x1, y1, x2, y2})
	return nil
}

func (d *scriptedDevice) InputText(ctx context.Context, text string) error {
	d.inputs = append(d.inputs, text)
	return nil
}

func (d *scriptedDevice) KeyEvent(ctx context.Context, code string) error {
	if d.firstKeyAt.IsZero() {
		d.firstKeyAt = time.Now()
	}
	d.keys = append(d.keys, code)
	return nil
}

func (d *scriptedDevice) StartApp(ctx context.Context, pkg, activity string) error {
	d.startedAt = time.Now()
	d.starts = append(d.starts, pkg)
	return nil
}

func (d *scriptedDevice) ForceStop(ctx context.Context, pkg string) error {
	d.stops = append(d.stops, pkg)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testConfig zeroes every settle delay so tests run instantly.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Package = "de.example.bank"
	cfg.Activity = ".MainActivity"
	cfg.PIN = "12"
	cfg.ScrollAttempts = 2
	cfg.ResetWait = 0
	cfg.PINWait = 0
	cfg.LaunchWait = 0
	cfg.Settle = 0
	cfg.WidgetWait = 0
	cfg.RefreshWait = 0
	cfg.Transactions.StepWait = 0
	return cfg
}

func newTestClient(dumps ...string) (*Client, *scriptedDevice) {
	return newTestClientWithConfig(testConfig(), dumps...)
}

func newTestClientWithConfig(cfg Config, dumps ...string) (*Client, *scriptedDevice) {
	device := &scriptedDevice{dumps: dumps}
	locCfg := screen.DefaultConfig()
	locCfg.Settle = 0
	locator := screen.NewLocatorWithConfig(device, nil, quietLogger(), locCfg)
	return NewClientWithConfig(device, locator, quietLogger(), cfg), device
}

const homeDump = `<hierarchy>
	<node index="0" text="" content-desc="" bounds="[0,0][1080,1920]" clickable="false">
		<node index="0" text="Übersicht" content-desc="" bounds="[40,100][300,160]" clickable="true"/>
		<node index="1" text="Main Account" content-desc="" bounds="[40,300][500,360]" clickable="false"/>
		<node index="2" text="1.234,56 &#8364;" content-desc="" bounds="[540,300][1040,360]" clickable="false"/>
	</node>
</hierarchy>`

const homeOnlyDump = `<hierarchy>
	<node index="0" text="" content-desc="" bounds="[0,0][1080,1920]" clickable="false">
		<node index="0" text="Übersicht" content-desc="" bounds="[40,100][300,160]" clickable="true"/>
	</node>
</hierarchy>`

const lostDump = `<hierarchy>
	<node index="0" text="" content-desc="" bounds="[0,0][1080,1920]" clickable="false">
		<node index="0" text="Irgendwas anderes" content-desc="" bounds="[40,100][300,160]" clickable="false"/>
	</node>
</hierarchy>`

func TestEnsureHomeAlreadyThere(t *testing.T) {
	client, device := newTestClient(homeDump)

	err := client.EnsureHome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.ScreenHome, client.State())
	assert.Empty(t, device.stops, "no reset when already home")
}

func TestEnsureHomeResetsOnce(t *testing.T) {
	client, device := newTestClient(lostDump, homeDump)

	err := client.EnsureHome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.ScreenHome, client.State())

	require.Len(t, device.stops, 1)
	require.Len(t, device.starts, 1)
	assert.Equal(t, []string{"KEYCODE_1", "KEYCODE_2"}, device.keys)
}

func TestEnsureHomeFailsAfterOneReset(t *testing.T) {
	client, device := newTestClient(lostDump)

	err := client.EnsureHome(context.Background())
	require.Error(t, err)

	var notFound *entities.ElementNotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, entities.ScreenUnknown, client.State())
	assert.Len(t, device.stops, 1, "exactly one reset, never a loop")
}

func TestInitAppWaitsForLockPrompt(t *testing.T) {
	cfg := testConfig()
	cfg.PINWait = 50 * time.Millisecond
	client, device := newTestClientWithConfig(cfg, homeDump)

	require.NoError(t, client.InitApp(context.Background()))

	// The PIN must not be typed before the lock prompt had time to render.
	require.False(t, device.firstKeyAt.IsZero())
	assert.GreaterOrEqual(t, device.firstKeyAt.Sub(device.startedAt), 50*time.Millisecond)
	assert.Equal(t, []string{"KEYCODE_1", "KEYCODE_2"}, device.keys)
}

func TestOpenWidgetTapsFixedColumn(t *testing.T) {
	client, device := newTestClient(homeDump)

	widget, found, err := client.OpenWidget(context.Background(), "Main Account")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Main Account", widget.Label)
	assert.Equal(t, entities.ScreenWidget, client.State())

	// The tap column is fixed, only the row comes from the located label.
	require.Len(t, device.taps, 1)
	assert.Equal(t, [2]int{580, 330}, device.taps[0])
}

func TestOpenWidgetAbsentIsNotAnError(t *testing.T) {
	client, device := newTestClient(homeOnlyDump)

	_, found, err := client.OpenWidget(context.Background(), "Main Account")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, device.taps)
}

func TestReturnHomeUsesCachedAnchor(t *testing.T) {
	client, device := newTestClient(homeDump)

	require.NoError(t, client.EnsureHome(context.Background()))
	require.NoError(t, client.ReturnHome(context.Background()))

	// Center of the cached clickable marker, no scroll search.
	require.Len(t, device.taps, 1)
	assert.Equal(t, [2]int{170, 130}, device.taps[0])
	assert.Empty(t, device.swipes)
	assert.Equal(t, entities.ScreenHome, client.State())
}

func TestRequestBankUpdateSwipesDown(t *testing.T) {
	client, device := newTestClient(homeDump)

	err := client.RequestBankUpdate(context.Background())
	require.NoError(t, err)

	require.Len(t, device.swipes, 1)
	assert.Equal(t, [4]int{500, 400, 500, 1400}, device.swipes[0])
}
