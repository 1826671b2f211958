package middleware

import (
	"net/http"
	"runtime/debug"

	"alquigest/internal/logger"
	helpers "alquigest/internal/utils/helpers"
	"go.uber.org/zap"
)

// Recoverer перехватывает панику обработчика, пишет стек в лог и отдаёт
// клиенту единый JSON-конверт ошибки вместо оборванного соединения.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				fields := []zap.Field{
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				}
				if userID, ok := r.Context().Value(ContextUserID).(int); ok {
					fields = append(fields, zap.Int("user_id", userID))
				}
				// request_id подтянет логгер из контекста
				logger.WithCtx(r.Context()).Error("Паника в обработчике", fields...)

				helpers.Error(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
