package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.5/bundles/datastar.js"

// Dashboard renders the single-page assistant UI. Insights and charts are
// streamed in over /sse once the page loads.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHead+dashboardBody)
		return err
	})
}

const dashboardHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>VoiceBank Pro</title>
<script type="module" src="` + datastarScript + `"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f7fb;color:#1f2937}
header{background:#1e3a8a;color:#fff;padding:1rem 2rem}
main{display:grid;grid-template-columns:2fr 1fr;gap:1.5rem;padding:1.5rem 2rem}
section{background:#fff;border-radius:8px;padding:1rem 1.25rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.answer{white-space:pre-wrap;min-height:3rem}
.insights{list-style:none;padding:0}
.insight{border-left:4px solid #9ca3af;padding:.5rem .75rem;margin:.5rem 0}
.priority-high{border-color:#dc2626}
.priority-medium{border-color:#f59e0b}
.priority-low{border-color:#10b981}
table{width:100%;border-collapse:collapse}
td,th{padding:.35rem;border-bottom:1px solid #e5e7eb;text-align:left}
</style>
</head>
`

const dashboardBody = `<body data-signals="{analytics: [], trends: [], anomalies: [], topMerchants: []}">
<header><h1>VoiceBank Pro</h1><p>Ask about your spending by typing or speaking.</p></header>
<main>
<section>
<h2>Ask</h2>
<form id="ask-form">
<input id="question" name="text" type="text" placeholder="How much did I spend on food?" autocomplete="off" size="48">
<button type="submit">Ask</button>
<button type="button" id="record">Hold to speak</button>
</form>
<p id="transcript"></p>
<p id="answer" class="answer"></p>
<table id="results"></table>
</section>
<section data-on-load="@get('/sse/insights')">
<h2>Insights</h2>
<div id="insights-content">Loading insights...</div>
<button data-on-click="@get('/sse/refresh-all')">Refresh</button>
</section>
</main>
<script>
const answer = document.getElementById("answer");
const transcript = document.getElementById("transcript");
const results = document.getElementById("results");

function show(reply) {
  if (!reply.text) {
    answer.textContent = reply.error ? reply.error.message : "Something went wrong.";
    return;
  }
  transcript.textContent = reply.transcript ? "You asked: " + reply.transcript : "";
  answer.textContent = reply.text;
  results.replaceChildren();
  for (const row of (reply.results || []).slice(0, 10)) {
    const tr = document.createElement("tr");
    for (const v of Object.values(row)) {
      const td = document.createElement("td");
      td.textContent = v;
      tr.appendChild(td);
    }
    results.appendChild(tr);
  }
  if (reply.browserSpeech && window.speechSynthesis) {
    speechSynthesis.speak(new SpeechSynthesisUtterance(reply.text));
  }
}

document.getElementById("ask-form").addEventListener("submit", async (e) => {
  e.preventDefault();
  const text = document.getElementById("question").value;
  const res = await fetch("/api/process-text", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({text}),
  });
  show(await res.json());
});

let recorder;
const record = document.getElementById("record");
record.addEventListener("mousedown", async () => {
  const stream = await navigator.mediaDevices.getUserMedia({audio: true});
  const chunks = [];
  recorder = new MediaRecorder(stream);
  recorder.ondataavailable = (e) => chunks.push(e.data);
  recorder.onstop = async () => {
    stream.getTracks().forEach((t) => t.stop());
    const form = new FormData();
    form.append("audio", new Blob(chunks, {type: "audio/webm"}), "recording.webm");
    const res = await fetch("/api/process-voice", {method: "POST", body: form});
    if (res.headers.get("Content-Type") === "audio/mpeg") {
      new Audio(URL.createObjectURL(await res.blob())).play();
      answer.textContent = "";
      return;
    }
    show(await res.json());
  };
  recorder.start();
});
record.addEventListener("mouseup", () => recorder && recorder.stop());
</script>
</body>
</html>
`
