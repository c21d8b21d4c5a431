package order

import dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"

// next lists the statuses reachable from each status. DELIVERED and
// CANCELLED have no outgoing edges.
var next = map[dbgen.OrderStatus][]dbgen.OrderStatus{
	dbgen.OrderStatusPENDING:    {dbgen.OrderStatusPROCESSING, dbgen.OrderStatusCANCELLED},
	dbgen.OrderStatusPROCESSING: {dbgen.OrderStatusSHIPPED, dbgen.OrderStatusCANCELLED},
	dbgen.OrderStatusSHIPPED:    {dbgen.OrderStatusDELIVERED},
}

// CanTransition reports whether from -> to is an edge of the order lifecycle.
func CanTransition(from, to dbgen.OrderStatus) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s dbgen.OrderStatus) bool {
	return len(next[s]) == 0
}

// ParseStatus validates a status name.
func ParseStatus(raw string) (dbgen.OrderStatus, bool) {
	switch s := dbgen.OrderStatus(raw); s {
	case dbgen.OrderStatusPENDING, dbgen.OrderStatusPROCESSING, dbgen.OrderStatusSHIPPED,
		dbgen.OrderStatusDELIVERED, dbgen.OrderStatusCANCELLED:
		return s, true
	}
	return "", false
}
