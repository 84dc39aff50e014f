package mock

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockSender is a mock of Sender interface.
type MockSender struct {
	ctrl     *gomock.Controller
	recorder *MockSenderMockRecorder
	isgomock struct{}
}

// MockSenderMockRecorder is the mock recorder for MockSender.
type MockSenderMockRecorder struct {
	mock *MockSender
}

// NewMockSender creates a new mock instance.
func NewMockSender(ctrl *gomock.Controller) *MockSender {
	mock := &MockSender{ctrl: ctrl}
	mock.recorder = &MockSenderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSender) EXPECT() *MockSenderMockRecorder {
	return m.recorder
}

// SendDirect mocks base method.
func (m *MockSender) SendDirect(ctx context.Context, accountID int64, text string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendDirect", ctx, accountID, text)
	ret0, _ := ret[0].(error)
	return ret0
}

// SendDirect indicates an expected call of SendDirect.
func (mr *MockSenderMockRecorder) SendDirect(ctx, accountID, text any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendDirect", reflect.TypeOf((*MockSender)(nil).SendDirect), ctx, accountID, text)
}

// SendOperator mocks base method.
func (m *MockSender) SendOperator(ctx context.Context, text string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendOperator", ctx, text)
	ret0, _ := ret[0].(error)
	return ret0
}

// SendOperator indicates an expected call of SendOperator.
func (mr *MockSenderMockRecorder) SendOperator(ctx, text any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendOperator", reflect.TypeOf((*MockSender)(nil).SendOperator), ctx, text)
}
