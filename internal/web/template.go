package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/range-haptics/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		case h > 0:
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		case m > 0:
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"kind": status.EventKind,
	"activeLabel": func(i int) string {
		if i == status.NoEvent {
			return "none"
		}
		return fmt.Sprintf("%d (%s)", i, status.EventKind(i))
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Range Haptics</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.true { color: green; font-weight: bold; }
.false { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
</style>
</head>
<body>
<h1>Range Haptics<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<h2>Distances</h2>
<table>
{{range $i, $d := .Distances}}<tr><th>Sensor {{$i}}</th><td id="dist-{{$i}}">{{$d}} mm</td></tr>
{{end}}</table>

<h2>Events</h2>
<table>
<tr><th>Active</th><td id="active">{{activeLabel .Active}}</td></tr>
{{range $i, $on := .Status}}<tr><th>Event {{$i}} ({{kind $i}})</th><td id="event-{{$i}}" class="{{if $on}}true{{else}}false{{end}}">{{if $on}}TRUE{{else}}false{{end}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}(disabled){{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Boot ID</th><td>{{.BootID}}</td></tr>
<tr><th>Cycles</th><td>{{.Cycles}}</td></tr>
<tr><th>Activations</th><td>{{.TotalActivations}}</td></tr>
<tr><th>Sensor timeouts</th><td>{{range $i, $n := .Timeouts}}{{if $i}} / {{end}}{{$n}}{{end}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}} ms</td></tr>
<tr><th>Cycle</th><td>{{.Config.CycleMs}} ms</td></tr>
<tr><th>Console</th><td>{{.Config.Serial}}</td></tr>
<tr><th>Store</th><td>{{.Config.Store}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var active = document.getElementById("active");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";

  function connect() {
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { dot.className = "live-dot ok"; dot.title = "live"; };
    ws.onclose = function() {
      dot.className = "live-dot err"; dot.title = "offline";
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var f = JSON.parse(ev.data);
        f.distances_mm.forEach(function(d, i) {
          document.getElementById("dist-" + i).textContent = d + " mm";
        });
        for (var i = 0; i < {{len .Status}}; i++) {
          var on = f.true_events.indexOf(i) >= 0;
          var el = document.getElementById("event-" + i);
          el.textContent = on ? "TRUE" : "false";
          el.className = on ? "true" : "false";
        }
        active.textContent = f.active_event < 0 ? "none" : String(f.active_event);
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
