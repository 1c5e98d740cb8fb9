package mocks

import (
	"slices"

	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(recipient string, data any, patterns ...string) error {
	args := m.Called(recipient, data, patterns)
	return args.Error(0)
}

// SentData returns the template data of the last email rendered from template, or nil.
func (m *MockMailer) SentData(template string) map[string]any {
	var data map[string]any
	for _, call := range m.Calls {
		patterns, _ := call.Arguments.Get(2).([]string)
		if slices.Contains(patterns, template) {
			data, _ = call.Arguments.Get(1).(map[string]any)
		}
	}
	return data
}
