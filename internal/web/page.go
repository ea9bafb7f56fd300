package web

const chatPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.message { padding: .5rem 1rem; margin: .5rem 0; border-radius: .5rem; }
.user { background: #eef3ff; }
.assistant { background: #f4f4f4; }
.role { font-weight: bold; font-size: .8rem; text-transform: uppercase; }
#busy { display: none; color: #666; margin: .5rem 0; }
form { display: flex; gap: .5rem; margin-top: 1rem; }
input[type=text] { flex: 1; padding: .5rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="chat">
{{range .Messages}}<div class="message {{.Role}}"><div class="role">{{.Role}}</div>{{.HTML}}</div>
{{end}}</div>
<div id="busy">Thinking...</div>
<form id="ask" method="post" action="/ask">
<input type="text" name="question" placeholder="Ask a question about the document" autocomplete="off" autofocus>
<button type="submit">Send</button>
</form>
<script>
document.getElementById("ask").addEventListener("submit", function () {
  document.getElementById("busy").style.display = "block";
  this.querySelector("button").disabled = true;
});
</script>
</body>
</html>
`
