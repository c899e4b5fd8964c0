package http

import (
	"go.uber.org/fx"

	purchaseordertransport "github.com/Additional-Code/procurement/internal/transport/http/purchaseorder"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	purchaseordertransport.Module,
)
