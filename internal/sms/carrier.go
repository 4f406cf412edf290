// internal/sms/carrier.go
// Carrier detection from Philippine mobile prefixes (local gateway routing)

package sms

// Carrier identifies a mobile network operator
type Carrier string

const (
	CarrierPLDT        Carrier = "PLDT"
	CarrierTNTSmartSun Carrier = "TNT/Smart/Sun"
	CarrierDITO        Carrier = "DITO"
	CarrierUnknown     Carrier = "Unknown"
)

const (
	defaultCarrierLine  = 1
	carrierPrefixLength = 4
)

// carrierRoute ties a prefix set to the carrier and the gateway line code.
// Order matters: the first set containing the prefix wins.
type carrierRoute struct {
	carrier  Carrier
	line     int
	prefixes map[string]struct{}
}

var carrierRoutes = []carrierRoute{
	{
		carrier: CarrierPLDT,
		line:    1,
		prefixes: prefixSet(
			"0817", "0905", "0906", "0915", "0916", "0917", "0926", "0927",
			"0935", "0936", "0937", "0945", "0955", "0956", "0965", "0966",
			"0967", "0973", "0975", "0976", "0977", "0978", "0979", "0994",
			"0995", "0996", "0997",
		),
	},
	{
		carrier: CarrierTNTSmartSun,
		line:    2,
		prefixes: prefixSet(
			"0813", "0907", "0908", "0909", "0910", "0911", "0912", "0913",
			"0914", "0918", "0919", "0921", "0928", "0929", "0930", "0938",
			"0940", "0946", "0947", "0948", "0949", "0950", "0951", "0970",
			"0981", "0989", "0992", "0998", "0999", "0922", "0923", "0924",
			"0925", "0931", "0932", "0933", "0934", "0941", "0942", "0943",
			"0944",
		),
	},
	{
		carrier: CarrierDITO,
		line:    3,
		prefixes: prefixSet(
			"0991", "0892", "0893", "0894", "0895", "0896", "0897", "0898",
		),
	},
}

func prefixSet(prefixes ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		set[p] = struct{}{}
	}
	return set
}

// lookupRoute returns the route for the phone's 4-character prefix.
// Inputs shorter than the prefix length never match.
func lookupRoute(phone string) (carrierRoute, bool) {
	if len(phone) < carrierPrefixLength {
		return carrierRoute{}, false
	}
	prefix := phone[:carrierPrefixLength]
	for _, route := range carrierRoutes {
		if _, ok := route.prefixes[prefix]; ok {
			return route, true
		}
	}
	return carrierRoute{}, false
}

// ClassifyCarrier maps a phone number to its carrier by prefix
func ClassifyCarrier(phone string) Carrier {
	if route, ok := lookupRoute(phone); ok {
		return route.carrier
	}
	return CarrierUnknown
}

// CarrierLine returns the numeric line code the local gateway expects.
// Unknown prefixes fall back to line 1 (PLDT).
func CarrierLine(phone string) int {
	if route, ok := lookupRoute(phone); ok {
		return route.line
	}
	return defaultCarrierLine
}
