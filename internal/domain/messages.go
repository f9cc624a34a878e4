package domain

// User-facing error messages. Kept in Spanish to match the public API.
const (
	MsgNoImage           = "No se proporcionó ninguna imagen"
	MsgCreateThread      = "Error al crear thread"
	MsgPostMessage       = "Error al enviar mensaje"
	MsgStartRun          = "Error al ejecutar asistente"
	MsgRunStatus         = "Error al consultar estado de ejecución"
	MsgRunFailed         = "Error en ejecución: "
	MsgFetchMessages     = "Error al obtener mensajes"
	MsgNoReply           = "No se recibió respuesta del asistente"
	MsgDeadline          = "Tiempo de espera agotado esperando al asistente"
	MsgCancelled         = "Consulta cancelada"
	MsgAssistantNotFound = "Asistente no encontrado"
	MsgImageTooLarge     = "La imagen supera el tamaño máximo de "
)
