// Package labels implements the label (shipping tag) pipeline: it assembles
// the carrier label request from an order, creates the tag and writes the
// tracking data back to the order.
package labels

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/quotes"
	"github.com/angelmondragon/shipbridge-backend/internal/rules"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
	"github.com/angelmondragon/shipbridge-backend/pkg/units"
	"go.uber.org/multierr"
)

const (
	requestOrigin = "E-Com Plus"

	// streetNumberPlaceholder substitutes a missing street number on
	// carrier address blocks.
	streetNumberPlaceholder = "SN"

	sendTypeInvoice     = "N"
	sendTypeDeclaration = "D"
)

// resolveProduct looks up the full product record behind an order item.
type resolveProduct func(ctx context.Context, productID string) (*types.Product, error)

// BuildResult is the carrier payload plus the per-item resolution outcome.
type BuildResult struct {
	Request      *kangu.LabelRequest
	SkippedItems int
	ItemErrors   error
}

// BuildLabelRequest assembles the carrier label payload for one shipping
// line of an order. Product lookups run concurrently and are best effort: a
// failed item is dropped from the package list and reported in ItemErrors;
// the build only fails when no item at all could be resolved.
func BuildLabelRequest(ctx context.Context, order *types.Order, line *types.ShippingLine, data appconfig.AppData, resolve resolveProduct) (*BuildResult, error) {
	if order == nil || line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and shipping line are required")
	}
	if line.App == nil || line.App.ServiceCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping line carries no app service code")
	}

	produtos, skipped, itemErrs := resolvePackages(ctx, order.Items, resolve)
	if len(order.Items) > 0 && len(produtos) == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, itemErrs, "no order item could be resolved")
	}

	req := &kangu.LabelRequest{
		Origem:   requestOrigin,
		Servicos: []string{line.App.ServiceCode},
		Pedido: kangu.Pedido{
			NumeroCli: order.ID,
			Tipo:      sendTypeDeclaration,
		},
		Produtos: produtos,
	}

	if order.Amount != nil {
		req.Pedido.VlrMerc = order.Amount.Total
	}
	if line.Package != nil {
		req.Pedido.PesoMerc = units.WeightKg(line.Package.Weight)
	}
	if invoice := firstInvoice(order); invoice != nil {
		req.Pedido.Tipo = sendTypeInvoice
		req.Pedido.Numero = invoice.Number
		req.Pedido.Serie = invoice.SerialNumber
		req.Pedido.Chave = invoice.AccessKey
	}

	if reference, ok := line.CustomField(quotes.ReferenceField); ok {
		req.Referencia = reference
	}

	req.Remetente = senderParty(line.From, data.Seller)
	req.Destinatario = recipientParty(line.To, firstBuyer(order))

	return &BuildResult{
		Request:      req,
		SkippedItems: skipped,
		ItemErrors:   itemErrs,
	}, nil
}

// resolvePackages maps order items to carrier package records, resolving the
// physical attributes from the product resource concurrently. Output order
// follows the item order regardless of lookup completion order.
func resolvePackages(ctx context.Context, items []types.OrderItem, resolve resolveProduct) ([]kangu.Product, int, error) {
	resolved := make([]*kangu.Product, len(items))
	var mu sync.Mutex
	var errs error

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item types.OrderItem) {
			defer wg.Done()
			product, err := lookup(ctx, item, resolve)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return
			}
			name := product.Name
			if name == "" {
				name = item.Name
			}
			height, width, length := units.DimensionsCm(product.Dimensions)
			resolved[i] = &kangu.Product{
				Peso:        units.WeightKg(product.Weight),
				Altura:      height,
				Largura:     width,
				Comprimento: length,
				Valor:       item.EffectivePrice(),
				Quantidade:  item.Quantity,
				Produto:     name,
			}
		}(i, item)
	}
	wg.Wait()

	produtos := make([]kangu.Product, 0, len(items))
	for _, p := range resolved {
		if p != nil {
			produtos = append(produtos, *p)
		}
	}
	return produtos, len(items) - len(produtos), errs
}

func lookup(ctx context.Context, item types.OrderItem, resolve resolveProduct) (*types.Product, error) {
	if resolve == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product resolver unset")
	}
	product, err := resolve(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product "+item.ProductID+" not found")
	}
	return product, nil
}

func senderParty(from *types.Address, seller *appconfig.Seller) kangu.Party {
	party := kangu.Party{}
	if seller != nil {
		party.Nome = seller.Name
		party.CnpjCpf = seller.DocNumber
		party.Contato = seller.Contact
	}
	party.Endereco = addressBlock(from)
	return party
}

func recipientParty(to *types.Address, buyer *types.Buyer) kangu.Party {
	party := kangu.Party{}
	if buyer != nil && buyer.DocNumber != "" {
		party.CnpjCpf = digitsOnly(buyer.DocNumber)
		party.Contato = buyer.DisplayName
	}
	if to != nil {
		party.Nome = to.Name
	}
	party.Endereco = addressBlock(to)
	return party
}

func addressBlock(addr *types.Address) *kangu.Endereco {
	if addr == nil {
		return nil
	}
	numero := streetNumberPlaceholder
	if addr.Number != 0 {
		numero = strconv.Itoa(addr.Number)
	}
	return &kangu.Endereco{
		Logradouro:  addr.Street,
		Numero:      numero,
		Bairro:      addr.Borough,
		Cep:         rules.NormalizeZip(addr.Zip),
		Cidade:      addr.City,
		UF:          addr.ProvinceCode,
		Complemento: addr.Complement,
	}
}

func firstInvoice(order *types.Order) *types.Invoice {
	for _, line := range order.ShippingLines {
		for _, invoice := range line.Invoices {
			if invoice.Number != "" {
				return &invoice
			}
		}
	}
	return nil
}

func firstBuyer(order *types.Order) *types.Buyer {
	if len(order.Buyers) == 0 {
		return nil
	}
	return &order.Buyers[0]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
