// Package mocks holds gomock mocks of the gateway's backend interfaces.
package mocks

//go:generate mockgen -destination=mock_storage.go -package=mocks -mock_names=Backend=MockStorageBackend github.com/cnonsohenry/telegram-video-app-sub000/pkg/storage Backend
//go:generate mockgen -destination=mock_database.go -package=mocks -mock_names=Backend=MockDatabaseBackend github.com/cnonsohenry/telegram-video-app-sub000/pkg/database Backend
//go:generate mockgen -destination=mock_fetcher.go -package=mocks github.com/cnonsohenry/telegram-video-app-sub000/pkg/origin Fetcher
//go:generate mockgen -destination=mock_locker.go -package=mocks github.com/cnonsohenry/telegram-video-app-sub000/pkg/fill Locker
