package events

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/gridquery/internal/datatable/domain"
)

const insertTimeout = 2 * time.Second

// DocumentInserter es lo que el consumidor necesita del servicio.
type DocumentInserter interface {
	Insert(ctx context.Context, collection string, docs ...domain.Document) error
}

// DocumentConsumer ingiere documentos desde mensajes: la clave es el nombre
// de la colección y el valor un documento JSON o un array de documentos.
type DocumentConsumer struct {
	service DocumentInserter
	log     *zap.Logger
}

// NewDocumentConsumer es el constructor.
func NewDocumentConsumer(service DocumentInserter, logger *zap.Logger) *DocumentConsumer {
	return &DocumentConsumer{
		service: service,
		log:     logger,
	}
}

// HandleMessage es el punto de entrada para un nuevo mensaje.
func (c *DocumentConsumer) HandleMessage(ctx context.Context, key string, payload []byte) error {
	collection := strings.TrimSpace(key)
	if collection == "" {
		c.log.Warn("Message without collection key ignored")
		return domain.ErrInvalidCollection
	}

	docs, err := domain.DecodeDocuments(payload)
	if err != nil {
		c.log.Warn("Failed to decode documents",
			zap.String("collection", collection),
			zap.Error(err))
		return err
	}

	ctxInsert, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	if err := c.service.Insert(ctxInsert, collection, docs...); err != nil {
		return err
	}

	c.log.Info("Documents ingested via event",
		zap.String("collection", collection),
		zap.Int("count", len(docs)))
	return nil
}
