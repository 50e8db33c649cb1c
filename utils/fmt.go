package utils

import (
	"fmt"
)

func ErrorfNoEscape(format string, v ...any) error {
	return fmt.Errorf(format, v...)
}

func AppendfNoEscape(buf []byte, format string, v ...any) []byte {
	return fmt.Appendf(buf, format, v...)
}
