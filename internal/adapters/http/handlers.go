package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/config"
	"github.com/dkeye/watchparty/internal/storage"
)

// uploadHandler accepts one multipart video file and returns the opaque ref
// the room protocol uses from then on.
func uploadHandler(cfg *config.Config, uploads *storage.UploadStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("video")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing video file"})
			return
		}
		if cfg.MaxUploadSize > 0 && fh.Size > cfg.MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read upload"})
			return
		}
		defer f.Close()

		v, err := uploads.Save(f, fh.Filename)
		if err != nil {
			if errors.Is(err, storage.ErrNotVideo) {
				c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not a video file"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Msg("upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func listVideosHandler(uploads *storage.UploadStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		videos, err := uploads.List()
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("list uploads failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list videos"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"videos": videos})
	}
}

func listRoomsHandler(rooms *app.RoomStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rooms.List()})
	}
}
