package rootfind_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRootfind(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rootfind Suite")
}
