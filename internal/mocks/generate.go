package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Fetcher --dir ../domain/source --output domain/source --outpkg sourcemock --filename fetcher_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../domain/datastore --output domain/datastore --outpkg datastoremock --filename store_mock.go
