package utils

// ToStringSlice keeps the string elements of a decoded JSON array.
func ToStringSlice(v any) []string {
	slice, _ := v.([]any)
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}
