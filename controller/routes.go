package controller

import (
	"github.com/goliatone/go-router"
)

// RegisterRoutes mounts the public and the protected endpoints. protected
// is the jwt middleware guarding everything that needs an identity.
func RegisterRoutes[T any](app router.Router[T], c *Controller, protected router.MiddlewareFunc) {
	app.Get("/health", c.Health).SetName("health.get")
	app.Get("/ping", c.Ping).SetName("ping.get")

	app.Post("/user/signup", c.Signup).SetName("user.signup")
	app.Post("/login", c.Login).SetName("login.post")

	app.Get("/user", c.ProfileShow, protected).SetName("user.get")
	app.Put("/user", c.ProfileUpdate, protected).SetName("user.put")
	app.Put("/user/password", c.PasswordUpdate, protected).SetName("user.password.put")

	app.Get("/records", c.RecordsIndex, protected).SetName("records.index")
	app.Post("/records", c.RecordsCreate, protected).SetName("records.create")
	app.Get("/records/:id", c.RecordsShow, protected).SetName("records.show")
	app.Put("/records/:id", c.RecordsUpdate, protected).SetName("records.update")
	app.Delete("/records/:id", c.RecordsDelete, protected).SetName("records.delete")
}
