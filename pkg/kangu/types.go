package kangu

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes a JSON field that the carrier emits inconsistently as a
// string or a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexInt decodes an integer the carrier may emit as a quoted string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Product is one cart item in the carrier's canonical units (kg, cm).
type Product struct {
	Peso        float64 `json:"peso"`
	Altura      float64 `json:"altura"`
	Largura     float64 `json:"largura"`
	Comprimento float64 `json:"comprimento"`
	Valor       float64 `json:"valor"`
	Quantidade  int     `json:"quantidade"`
	Produto     string  `json:"produto"`
}

// QuoteRequest is the rate simulation payload (tms/transporte/simular).
type QuoteRequest struct {
	CepOrigem  string    `json:"cepOrigem"`
	CepDestino string    `json:"cepDestino"`
	Origem     string    `json:"origem"`
	Servicos   []string  `json:"servicos"`
	Ordernar   string    `json:"ordernar"`
	Produtos   []Product `json:"produtos"`
}

// PickupAddress locates a pickup point.
type PickupAddress struct {
	Logradouro  string     `json:"logradouro,omitempty"`
	Numero      FlexString `json:"numero,omitempty"`
	Complemento string     `json:"complemento,omitempty"`
	Bairro      string     `json:"bairro,omitempty"`
	Cidade      string     `json:"cidade,omitempty"`
	Distancia   float64    `json:"distancia,omitempty"`
}

// PickupPoint is an optional pickup alternative attached to a rate.
type PickupPoint struct {
	Nome       string         `json:"nome,omitempty"`
	Referencia FlexString     `json:"referencia,omitempty"`
	Endereco   *PickupAddress `json:"endereco,omitempty"`
}

// RateOption is one record of the carrier's quote response array.
type RateOption struct {
	Servico      FlexString    `json:"servico"`
	VlrFrete     float64       `json:"vlrFrete"`
	PrazoEnt     FlexInt       `json:"prazoEnt"`
	NfObrig      string        `json:"nf_obrig,omitempty"`
	Referencia   FlexString    `json:"referencia,omitempty"`
	TranspNome   string        `json:"transp_nome,omitempty"`
	CnpjTransp   string        `json:"cnpjTransp,omitempty"`
	Descricao    string        `json:"descricao,omitempty"`
	PontosRetira []PickupPoint `json:"pontosRetira,omitempty"`
}

// Endereco is a full postal address block for label creation.
type Endereco struct {
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Bairro      string `json:"bairro,omitempty"`
	Cep         string `json:"cep"`
	Cidade      string `json:"cidade,omitempty"`
	UF          string `json:"uf,omitempty"`
	Complemento string `json:"complemento,omitempty"`
}

// Party is a sender or recipient block.
type Party struct {
	Nome     string    `json:"nome,omitempty"`
	CnpjCpf  string    `json:"cnpjCpf,omitempty"`
	Contato  string    `json:"contato,omitempty"`
	Endereco *Endereco `json:"endereco,omitempty"`
}

// Pedido carries the order header on a label request. Tipo is "N" when a
// fiscal invoice backs the shipment, "D" for a simple declaration.
type Pedido struct {
	NumeroCli string  `json:"numeroCli"`
	VlrMerc   float64 `json:"vlrMerc"`
	PesoMerc  float64 `json:"pesoMerc,omitempty"`
	Tipo      string  `json:"tipo"`
	Numero    string  `json:"numero,omitempty"`
	Serie     string  `json:"serie,omitempty"`
	Chave     string  `json:"chave,omitempty"`
}

// LabelRequest is the tag solicitation payload (tms/transporte/solicitar).
type LabelRequest struct {
	Origem       string    `json:"origem"`
	Servicos     []string  `json:"servicos"`
	Referencia   string    `json:"referencia,omitempty"`
	Pedido       Pedido    `json:"pedido"`
	Destinatario Party     `json:"destinatario"`
	Remetente    Party     `json:"remetente"`
	Produtos     []Product `json:"produtos"`
}

// Etiqueta is one generated tag.
type Etiqueta struct {
	NumeroTransp string `json:"numeroTransp"`
}

// LabelResponse is the carrier's answer to a label request: a tag id plus
// the per-shipment tracking numbers.
type LabelResponse struct {
	Codigo    FlexString `json:"codigo"`
	Etiquetas []Etiqueta `json:"etiquetas"`
}
