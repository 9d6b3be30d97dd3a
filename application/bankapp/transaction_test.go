package bankapp

import (
	"context"
	"errors"
	"testing"

	"bank_automation/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formDump = `<hierarchy>
	<node index="0" text="" content-desc="" bounds="[0,0][1080,1920]" clickable="false">
		<node index="0" text="Transaktion hinzufügen" content-desc="" bounds="[40,200][600,260]" clickable="true"/>
		<node index="1" text="Ausgabe" content-desc="" bounds="[40,300][300,360]" clickable="true"/>
		<node index="2" text="Einnahme" content-desc="" bounds="[340,300][600,360]" clickable="true"/>
		<node index="3" text="Weiter" content-desc="" bounds="[40,400][300,460]" clickable="true"/>
		<node index="4" text="Kategorie" content-desc="" bounds="[40,500][400,560]" clickable="true"/>
		<node index="5" text="Sonstiges" content-desc="" bounds="[40,600][400,660]" clickable="true"/>
		<node index="6" text="Speichern" content-desc="" bounds="[40,700][300,760]" clickable="true"/>
	</node>
</hierarchy>`

const closedFormDump = `<hierarchy>
	<node index="0" text="" content-desc="" bounds="[0,0][1080,1920]" clickable="false">
		<node index="0" text="Main Account" content-desc="" bounds="[40,300][500,360]" clickable="false"/>
	</node>
</hierarchy>`

// repeat builds the dump script for a scripted device: n form snapshots, then
// whatever follows.
func repeat(dump string, n int, then ...string) []string {
	dumps := make([]string, 0, n+len(then))
	for i := 0; i < n; i++ {
		dumps = append(dumps, dump)
	}
	return append(dumps, then...)
}

func TestInjectTransactionExpense(t *testing.T) {
	// Seven snapshots drive the scripted steps, the eighth verifies the
	// form closed after save.
	client, device := newTestClient(repeat(formDump, 7, closedFormDump)...)

	err := client.InjectTransaction(context.Background(),
		decimal.NewFromFloat(-65.44), "Balance correction", "Sonstiges")
	require.NoError(t, err)

	// Amount in minor units, then the free-text label, then the category.
	assert.Equal(t, []string{"6544", "Balance correction", "Sonstiges"}, device.inputs)

	// New entry, expense, two confirms, category field, suggestion, save.
	assert.Len(t, device.taps, 7)
	assert.Equal(t, entities.ScreenWidget, client.State())
}

func TestInjectTransactionSuggestionBelowField(t *testing.T) {
	client, device := newTestClient(repeat(formDump, 7, closedFormDump)...)

	err := client.InjectTransaction(context.Background(),
		decimal.NewFromFloat(-10), "x", "Sonstiges")
	require.NoError(t, err)

	// The suggestion tap must land on the entry below the category field,
	// not on the field's own text.
	assert.Equal(t, [2]int{220, 630}, device.taps[5])
}

func TestInjectTransactionGainFailsClosed(t *testing.T) {
	client, device := newTestClient(formDump)

	err := client.InjectTransaction(context.Background(),
		decimal.NewFromFloat(65.44), "Balance correction", "Sonstiges")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGainUnsupported))
	assert.Empty(t, device.inputs, "nothing typed before failing closed")
}

func TestInjectTransactionGainWithConfiguredIncome(t *testing.T) {
	cfg := testConfig()
	cfg.Transactions.IncomeLabel = "Einnahme"
	client, device := newTestClientWithConfig(cfg, repeat(formDump, 7, closedFormDump)...)

	err := client.InjectTransaction(context.Background(),
		decimal.NewFromFloat(65.44), "Balance correction", "Sonstiges")
	require.NoError(t, err)
	assert.Equal(t, "6544", device.inputs[0])
}

func TestInjectTransactionSaveDidNotClose(t *testing.T) {
	client, _ := newTestClient(formDump)

	err := client.InjectTransaction(context.Background(),
		decimal.NewFromFloat(-10), "x", "Sonstiges")
	require.Error(t, err)

	var malformed *entities.MalformedLayoutError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "Speichern", malformed.Label)
}

func TestRecordCorrectionRoundTrip(t *testing.T) {
	dumps := repeat(formDump, 7, closedFormDump, homeDump)
	client, device := newTestClient(dumps...)

	anchor := entities.ScreenElement{
		Label:  "Main Account",
		Bounds: entities.Rect{X1: 40, Y1: 300, X2: 500, Y2: 360},
	}

	err := client.RecordCorrection(context.Background(), anchor,
		decimal.NewFromFloat(-65.44), "Balance correction", "Sonstiges")
	require.NoError(t, err)

	// The first tap opens the account behind the anchor.
	require.NotEmpty(t, device.taps)
	assert.Equal(t, [2]int{270, 330}, device.taps[0])
	assert.Equal(t, entities.ScreenHome, client.State())
}
