package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/jobs/:jobID", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobID")
		client := hub.Register(jobID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}

		// The read side learns about the disconnect; closing Send here lets
		// the writer drain and exit even when no frame ever arrives again.
		hub.Unregister(client)
		<-done
	}))
}
