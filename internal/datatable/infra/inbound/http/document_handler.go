package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/gridquery/internal/datatable/application"
	"github.com/davicafu/gridquery/internal/datatable/domain"
	"github.com/davicafu/gridquery/pkg/utils"
)

// DocumentHandler encapsula los endpoints HTTP de consulta de colecciones.
type DocumentHandler struct {
	service *application.QueryService
}

func NewDocumentHandler(service *application.QueryService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// QueryDocuments endpoint GET /collections/:collection/documents
//
// Parámetros: page, itemsPerPage, search, searchOptions (JSON), filter,
// sortBy, sortDesc y getFilterList.
func (h *DocumentHandler) QueryDocuments(c *gin.Context) {
	opts := domain.QueryOptions{
		Page:          c.Query("page"),
		ItemsPerPage:  c.Query("itemsPerPage"),
		Search:        c.Query("search"),
		Filter:        c.Query("filter"),
		SortBy:        c.Query("sortBy"),
		SortDesc:      c.Query("sortDesc"),
		GetFilterList: c.Query("getFilterList"),
	}

	if raw := c.Query("searchOptions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.SearchOptions); err != nil {
			utils.SendBadRequest(c, "invalid searchOptions: "+err.Error())
			return
		}
	}

	res, err := h.service.Query(c.Request.Context(), c.Param("collection"), opts)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// InsertDocuments endpoint POST /collections/:collection/documents
// El cuerpo es un documento o un array de documentos.
func (h *DocumentHandler) InsertDocuments(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	docs, err := domain.DecodeDocuments(body)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	if err := h.service.Insert(c.Request.Context(), c.Param("collection"), docs...); err != nil {
		sendServiceError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, gin.H{"inserted": len(docs)})
}

func sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCollection), errors.Is(err, domain.ErrInvalidDocument):
		utils.SendBadRequest(c, err.Error())
	default:
		utils.SendInternalServerError(c, err.Error())
	}
}
