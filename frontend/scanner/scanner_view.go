package scanner

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"pricescanner/frontend/shared/html"
)

func ScannerPage(page html.Page, data PageData) templ.Component {
	return html.Layout(page, scannerBody(data))
}

func scannerBody(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="scanner">
<form method="GET" action="/scanner/lookup" id="lookup-form" class="lookup">
  <label for="barcode">الباركود</label>
  <input id="barcode" name="barcode" type="text" inputmode="numeric" autocomplete="off" autofocus value="%s">
  <button type="submit">بحث</button>
  <button type="button" onclick="openScanModal('barcode')">الكاميرا</button>
</form>`, templ.EscapeString(data.Query)); err != nil {
			return err
		}
		if data.HasResult() {
			if err := resultPanel(data).Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</section>`); err != nil {
			return err
		}
		_, err := io.WriteString(w, scanModalAssets())
		return err
	})
}

func resultPanel(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := data.Product
		price := decimal.NewFromFloat(p.Price).StringFixed(2)
		if _, err := fmt.Fprintf(w, `<article class="result" data-barcode="%s">
  <h2>%s</h2>
  <p class="price"><span>%s</span> <small>%s</small></p>
  <dl>
    <dt>الباركود</dt><dd>%s</dd>
    <dt>المخزون</dt><dd>%s</dd>
    <dt>في السلة</dt><dd>%d</dd>
  </dl>`,
			templ.EscapeString(p.Barcode),
			templ.EscapeString(productName(p.ProductName)),
			price,
			templ.EscapeString(p.Currency),
			templ.EscapeString(p.Barcode),
			templ.EscapeString(data.StockText()),
			data.InCart,
		); err != nil {
			return err
		}
		if p.Description != "" {
			if _, err := fmt.Fprintf(w, `<p class="description">%s</p>`, templ.EscapeString(p.Description)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<img class="barcode" alt="%s" src="/scanner/barcode/%s.png">`,
			templ.EscapeString(p.Barcode), url.PathEscape(p.Barcode)); err != nil {
			return err
		}
		if data.MaxAdd < 1 {
			_, err := io.WriteString(w, `<p class="notice">الكمية في السلة تساوي المخزون المتاح</p></article>`)
			return err
		}
		_, err := fmt.Fprintf(w, `<form method="POST" action="/scanner/add" class="add">
  <input type="hidden" name="barcode" value="%s">
  <label for="quantity">الكمية</label>
  <input id="quantity" name="quantity" type="number" min="1" max="%d" value="1" data-clamp>
  <button type="submit">أضف إلى السلة</button>
</form></article>`, templ.EscapeString(p.Barcode), data.MaxAdd)
		return err
	})
}

func productName(name string) string {
	if name == "" {
		return "منتج غير معروف"
	}
	return name
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func scanModalAssets() string {
	return `<dialog id="scan-modal" class="modal">
  <div class="modal-box">
    <h3>امسح الباركود</h3>
    <div id="scan-reader" class="scan-reader"></div>
    <p id="scan-status">الكاميرا متوقفة</p>
    <button type="button" onclick="closeScanModal()">إغلاق</button>
  </div>
</dialog>
<script>
let scanTargetInput = null;
let quaggaRunning = false;
let onDetectedHandler = null;

function setScanStatus(msg) {
  const el = document.getElementById("scan-status");
  if (el) el.textContent = msg;
}

function loadQuaggaScript() {
  if (window.Quagga) return Promise.resolve();
  return new Promise((resolve, reject) => {
    const s = document.createElement("script");
    s.src = "https://cdn.jsdelivr.net/npm/@ericblade/quagga2@1.8.4/dist/quagga.min.js";
    s.onload = resolve;
    s.onerror = reject;
    document.head.appendChild(s);
  });
}

async function openScanModal(targetInputID) {
  scanTargetInput = document.getElementById(targetInputID);
  const modal = document.getElementById("scan-modal");
  if (!modal) return;
  modal.showModal();
  setScanStatus("جارٍ تشغيل الكاميرا...");
  try {
    await startScanner();
  } catch (err) {
    setScanStatus("تعذر تشغيل الكاميرا: " + (err && err.message ? err.message : err));
  }
}

function closeScanModal() {
  stopScanner();
  const modal = document.getElementById("scan-modal");
  if (modal && modal.open) modal.close();
  setScanStatus("الكاميرا متوقفة");
}

async function startScanner() {
  if (quaggaRunning) return;
  await loadQuaggaScript();
  const target = document.getElementById("scan-reader");
  if (!target) throw new Error("scan target missing");

  await new Promise((resolve, reject) => {
    window.Quagga.init({
      inputStream: {
        type: "LiveStream",
        target: target,
        constraints: { facingMode: { ideal: "environment" } }
      },
      decoder: {
        readers: ["ean_reader", "ean_8_reader", "upc_reader", "upc_e_reader", "code_128_reader"]
      },
      locate: true
    }, (err) => {
      if (err) return reject(err);
      return resolve();
    });
  });

  onDetectedHandler = function(result) {
    const code = result && result.codeResult && result.codeResult.code;
    if (!code || !scanTargetInput) return;
    scanTargetInput.value = code;
    closeScanModal();
    if (scanTargetInput.form) scanTargetInput.form.submit();
  };
  window.Quagga.onDetected(onDetectedHandler);
  window.Quagga.start();
  quaggaRunning = true;
  setScanStatus("وجّه الكاميرا نحو الباركود");
}

function stopScanner() {
  if (!window.Quagga || !quaggaRunning) return;
  if (onDetectedHandler) {
    window.Quagga.offDetected(onDetectedHandler);
  }
  window.Quagga.stop();
  quaggaRunning = false;
}
</script>`
}
