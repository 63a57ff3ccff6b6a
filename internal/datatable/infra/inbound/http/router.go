package http

import "github.com/gin-gonic/gin"

// RegisterDocumentRoutes registra las rutas HTTP de consulta de colecciones.
func RegisterDocumentRoutes(r *gin.Engine, handler *DocumentHandler) {
	collections := r.Group("/collections/:collection")
	{
		collections.GET("/documents", handler.QueryDocuments)   // Página filtrada o lista de valores
		collections.POST("/documents", handler.InsertDocuments) // Insertar uno o varios documentos
	}
}
