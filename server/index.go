package server

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>xagent</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; color: #222; }
  h1 { font-size: 1.4rem; }
  #log { border: 1px solid #ddd; border-radius: 8px; min-height: 320px; padding: 1rem; margin-bottom: 1rem; }
  .q { font-weight: 600; margin-top: 1rem; }
  .a { margin-top: .5rem; }
  .meta { color: #888; font-size: .8rem; margin-top: .25rem; }
  form { display: flex; gap: .5rem; }
  input { flex: 1; padding: .6rem; border: 1px solid #ccc; border-radius: 6px; }
  button { padding: .6rem 1.2rem; border: 0; border-radius: 6px; background: #1d9bf0; color: #fff; cursor: pointer; }
  button:disabled { background: #9bd; }
</style>
</head>
<body>
<h1>xagent &mdash; ask about what's happening on X</h1>
<div id="log"></div>
<form id="form">
  <input id="question" placeholder="What are people saying about ..." autocomplete="off" autofocus>
  <button id="send" type="submit">Ask</button>
</form>
<script>
const log = document.getElementById('log');
const form = document.getElementById('form');
const input = document.getElementById('question');
const send = document.getElementById('send');

form.addEventListener('submit', async (e) => {
  e.preventDefault();
  const question = input.value.trim();
  if (!question) return;

  const q = document.createElement('div');
  q.className = 'q';
  q.textContent = question;
  log.appendChild(q);
  input.value = '';
  send.disabled = true;

  try {
    const resp = await fetch('/xagent/chat', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({question})
    });
    const data = await resp.json();

    const a = document.createElement('div');
    a.className = 'a';
    if (resp.ok) {
      a.innerHTML = data.answer_html;
      const meta = document.createElement('div');
      meta.className = 'meta';
      meta.textContent = data.document_count + ' sources, ' + data.retry_count + ' rewrites';
      log.appendChild(a);
      log.appendChild(meta);
    } else {
      a.textContent = 'Error: ' + (data.error || resp.status);
      log.appendChild(a);
    }
  } catch (err) {
    const a = document.createElement('div');
    a.className = 'a';
    a.textContent = 'Request failed: ' + err;
    log.appendChild(a);
  } finally {
    send.disabled = false;
    log.scrollTop = log.scrollHeight;
  }
});
</script>
</body>
</html>
`
