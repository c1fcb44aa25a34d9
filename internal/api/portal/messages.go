package portal

import (
	"errors"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/message"
	"net/http"
)

// EndpointSendMessage handles the 'POST /v1/messages' endpoint
func (service *Service) EndpointSendMessage(writer http.ResponseWriter, request *http.Request) {
	payload, ok := decodeBody[message.Message](service, writer, request)
	if !ok {
		return
	}

	result, err := service.dispatcher.Send(request.Context(), *payload)
	if err != nil {
		switch {
		case errors.Is(err, message.ErrNoRecipient),
			errors.Is(err, message.ErrInvalidRecipient),
			errors.Is(err, message.ErrMixedRecipients):
			service.writer.WriteErrors(writer, http.StatusUnprocessableEntity, schema.ErrRequestBodyParameter("recipients", err))
		case errors.Is(err, message.ErrInvalidFallback):
			service.writer.WriteErrors(writer, http.StatusUnprocessableEntity, schema.ErrRequestBodyParameter("fallback", err))
		default:
			service.writer.WriteInternalError(writer, request, err)
		}
		return
	}

	requestLogger(request).Info().Bool("success", result.Success).Str("user", client(request).ID).Msg("Dispatched a message")
	service.writer.WriteJSON(writer, result)
}
