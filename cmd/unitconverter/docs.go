package main

// General API documentation for swaggo. Regenerate internal/httpapi/docs with
// `swag init -g cmd/unitconverter/docs.go -o internal/httpapi/docs`.
//
// @title           unitconverter API
// @version         1.0
// @description     Unit conversion service with supervised C++/Python/Java workers.
//
// @contact.name   unitconverter maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
