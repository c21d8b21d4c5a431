package order

import (
	"testing"

	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
)

func TestCanTransition(t *testing.T) {
	all := []dbgen.OrderStatus{
		dbgen.OrderStatusPENDING, dbgen.OrderStatusPROCESSING, dbgen.OrderStatusSHIPPED,
		dbgen.OrderStatusDELIVERED, dbgen.OrderStatusCANCELLED,
	}
	allowed := map[[2]dbgen.OrderStatus]bool{
		{dbgen.OrderStatusPENDING, dbgen.OrderStatusPROCESSING}:   true,
		{dbgen.OrderStatusPENDING, dbgen.OrderStatusCANCELLED}:    true,
		{dbgen.OrderStatusPROCESSING, dbgen.OrderStatusSHIPPED}:   true,
		{dbgen.OrderStatusPROCESSING, dbgen.OrderStatusCANCELLED}: true,
		{dbgen.OrderStatusSHIPPED, dbgen.OrderStatusDELIVERED}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			require.Equal(t, allowed[[2]dbgen.OrderStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	require.True(t, IsTerminal(dbgen.OrderStatusDELIVERED))
	require.True(t, IsTerminal(dbgen.OrderStatusCANCELLED))
	require.False(t, IsTerminal(dbgen.OrderStatusSHIPPED))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("SHIPPED")
	require.True(t, ok)
	require.Equal(t, dbgen.OrderStatusSHIPPED, s)

	_, ok = ParseStatus("shipped")
	require.False(t, ok)
}
