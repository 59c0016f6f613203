package middleware

import (
	"strconv"

	"srefhub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// catalogueParams are route params worth copying onto request spans.
var catalogueParams = []string{"id", "slug", "styleId"}

// RequestTracing opens a server span per request. Spans are renamed to the
// matched route template once routing is done so /styles/:slug stays one
// series regardless of slug.
func RequestTracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		carrier := propagation.HeaderCarrier(c.GetReqHeaders())
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		sc := span.SpanContext()
		c.Locals("traceID", sc.TraceID().String())
		c.Set("X-Trace-ID", sc.TraceID().String())
		if rid, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route(); route != nil && route.Path != "" {
			span.SetName(c.Method() + " " + route.Path)
			span.SetAttributes(attribute.String("http.route", route.Path))
		}
		for _, name := range catalogueParams {
			if v := c.Params(name); v != "" {
				span.SetAttributes(attribute.String("srefhub."+name, v))
			}
		}
		if uid := CurrentUserID(c); uid != 0 {
			span.SetAttributes(attribute.String("enduser.id", strconv.FormatUint(uint64(uid), 10)))
		}

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
		return err
	}
}
