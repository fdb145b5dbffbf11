package driver

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

// testPDF is a minimal well-formed single-page PDF.
var testPDF = []byte("%PDF-1.4\n" +
	"1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\n" +
	"trailer<</Root 1 0 R>>\n%%EOF\n")

// TestPDF returns the bytes UploadTestFile attaches.
func TestPDF() []byte {
	return append([]byte(nil), testPDF...)
}

// UploadTestFile attaches an in-memory test document named fileName to
// the file input of upload field field. Nothing is read from disk.
func (d *Driver) UploadTestFile(field, fileName string) error {
	return d.UploadFile(field, fileName, contentType(fileName), testPDF)
}

// UploadFile attaches content as fileName to the file input of upload
// field field and dispatches change. Multiple-file inputs keep the files
// already attached.
func (d *Driver) UploadFile(field, fileName, mimeType string, content []byte) error {
	sel := formtest.FieldSelector(formtest.Field{Name: field, Kind: formtest.KindFile})
	if _, err := d.waitElement(sel); err != nil {
		return err
	}
	n, err := d.evalInt(`(sel, name, type, b64) => {
		const input = document.querySelector(sel);
		const bytes = Uint8Array.from(atob(b64), c => c.charCodeAt(0));
		const dt = new DataTransfer();
		if (input.multiple) {
			for (const f of input.files) dt.items.add(f);
		}
		dt.items.add(new File([bytes], name, {type}));
		input.files = dt.files;
		input.dispatchEvent(new Event('input', {bubbles: true}));
		input.dispatchEvent(new Event('change', {bubbles: true}));
		return input.files.length;
	}`, sel, fileName, mimeType, base64.StdEncoding.EncodeToString(content))
	if err != nil {
		return fmt.Errorf("upload %s to %s: %w", fileName, field, err)
	}
	d.logger.Debug("Attached file", "field", field, "file", fileName, "files", n)
	return nil
}

// FileNames returns the names of the files attached to upload field field.
func (d *Driver) FileNames(field string) ([]string, error) {
	sel := formtest.FieldSelector(formtest.Field{Name: field, Kind: formtest.KindFile})
	res, err := d.page.Eval(`(sel) => {
		const input = document.querySelector(sel);
		return input ? [...input.files].map(f => f.name) : null;
	}`, sel)
	if err != nil {
		return nil, fmt.Errorf("read files of %s: %w", field, err)
	}
	if res.Value.Nil() {
		return nil, fmt.Errorf("upload field %s: %w", field, ErrElementMissing)
	}
	var names []string
	for _, v := range res.Value.Arr() {
		names = append(names, v.Str())
	}
	return names, nil
}

// FileInputAttr returns an attribute of the file input of upload field
// field, e.g. "accept" or "multiple". A missing attribute yields "".
func (d *Driver) FileInputAttr(field, attr string) (string, error) {
	sel := formtest.FieldSelector(formtest.Field{Name: field, Kind: formtest.KindFile})
	if _, err := d.waitElement(sel); err != nil {
		return "", err
	}
	return d.evalString(`(sel, attr) => {
		const v = document.querySelector(sel).getAttribute(attr);
		return v === null ? '' : v;
	}`, sel, attr)
}

func contentType(fileName string) string {
	if t := mime.TypeByExtension(filepath.Ext(fileName)); t != "" {
		return t
	}
	return "application/pdf"
}
