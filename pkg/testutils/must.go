package testutils

import (
	. "github.com/onsi/gomega"
)

// Must asserts a successful result of a function call
// and returns the value.
func Must[T any](o T, err error) T {
	ExpectWithOffset(1, err).To(Succeed())
	return o
}

func MustBeSuccessful(err error) {
	ExpectWithOffset(1, err).To(Succeed())
}

// MustFailWithMessage asserts an error with the given message.
func MustFailWithMessage(err error, msg string) {
	ExpectWithOffset(1, err).To(HaveOccurred())
	ExpectWithOffset(1, err.Error()).To(Equal(msg))
}
