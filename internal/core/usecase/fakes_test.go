package usecase

import (
	"context"
	"errors"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

type pagesFake struct {
	result domain.PageExtraction
	err    error
	calls  int
}

func (f *pagesFake) Extract(context.Context, domain.PageSnapshot) (domain.PageExtraction, error) {
	f.calls++
	return f.result, f.err
}

type fetcherFake struct {
	blobs map[string]domain.Blob
	err   error
	urls  []string
}

func (f *fetcherFake) Fetch(_ context.Context, rawURL string) (domain.Blob, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return domain.Blob{}, f.err
	}
	blob, ok := f.blobs[rawURL]
	if !ok {
		return domain.Blob{}, errors.New("not found")
	}
	return blob, nil
}

type recovererFake struct {
	text  domain.PdfText
	err   error
	input []byte
}

func (f *recovererFake) Recover(_ context.Context, data []byte) (domain.PdfText, error) {
	f.input = data
	return f.text, f.err
}

type validatorFake struct {
	pages int
	err   error
}

func (f validatorFake) Validate([]byte) (int, error) {
	return f.pages, f.err
}

type aiFake struct {
	fields  map[string]any
	err     error
	keys    []string
	request domain.FieldRequest
}

func (f *aiFake) ExtractFields(_ context.Context, apiKey string, req domain.FieldRequest) (map[string]any, error) {
	f.keys = append(f.keys, apiKey)
	f.request = req
	return f.fields, f.err
}

type settingsFake struct {
	key     string
	loadErr error
	saved   []string
}

func (f *settingsFake) LoadAPIKey(context.Context) (string, error) {
	return f.key, f.loadErr
}

func (f *settingsFake) SaveAPIKey(_ context.Context, key string) error {
	f.saved = append(f.saved, key)
	f.key = key
	return nil
}

type transferClientFake struct {
	result    domain.TransferResult
	err       error
	req       domain.TransferRequest
	recipient domain.RecipientSpec
	calls     int
}

func (f *transferClientFake) CreateTransfer(_ context.Context, req domain.TransferRequest, recipient domain.RecipientSpec) (domain.TransferResult, error) {
	f.calls++
	f.req = req
	f.recipient = recipient
	return f.result, f.err
}
