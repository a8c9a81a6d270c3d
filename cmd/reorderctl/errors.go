package main

import "fmt"

func cmdErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
