package http11

// Method IDs of the methods the server routes on. Every other method is
// MethodUnknown and answered with 501.
const (
	MethodUnknown uint8 = iota
	MethodGET
	MethodHEAD
	MethodPOST
)

// ParseMethodID converts a case-sensitive method name to its ID.
func ParseMethodID(method string) uint8 {
	switch method {
	case "GET":
		return MethodGET
	case "HEAD":
		return MethodHEAD
	case "POST":
		return MethodPOST
	}
	return MethodUnknown
}

// MethodString returns the name of a method ID, or "" for MethodUnknown.
func MethodString(id uint8) string {
	switch id {
	case MethodGET:
		return "GET"
	case MethodHEAD:
		return "HEAD"
	case MethodPOST:
		return "POST"
	}
	return ""
}
