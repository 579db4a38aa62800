// Package mocks provides shared test doubles for the store, auth and service
// interfaces.
//
// Function-field mocks (MockUserStore, MockJWTService, MockPasswordHasher)
// fall back to simple defaults when a field is nil.
// MockTaskStore is a testify mock for tests that assert on call arguments.
//
//	jwt := &mocks.MockJWTService{Token: "access", RefreshToken: "refresh"}
//	tasks := new(mocks.MockTaskStore)
//	tasks.On("NextOrder", mock.Anything, userID, domain.StatusTodo).Return(3, nil)
package mocks
